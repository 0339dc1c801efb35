package entity

import "fmt"

type Role string

const (
	RoleLikeButton         Role = "likeButton"
	RoleDislikeButton      Role = "dislikeButton"
	RoleChannelName        Role = "channelName"
	RoleCommentPlaceholder Role = "commentPlaceholder"
	RoleCommentInput       Role = "commentInput"
	RoleCommentSubmit      Role = "commentSubmit"
)

// Roles lists every role in calibration order.
var Roles = []Role{
	RoleLikeButton,
	RoleDislikeButton,
	RoleChannelName,
	RoleCommentPlaceholder,
	RoleCommentInput,
	RoleCommentSubmit,
}

// RequiredRoles must be calibrated before any automatic interaction runs.
var RequiredRoles = []Role{RoleLikeButton, RoleDislikeButton, RoleChannelName}

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
