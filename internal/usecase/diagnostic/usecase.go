// Package diagnostic checks that the required elements resolve on the
// current page and optionally captures a thumbnail of each.
package diagnostic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/locator"
	"autolike/internal/domain/ports"
	"autolike/internal/domain/resolver"
)

const (
	thumbnailWidth = 320
	jpegQuality    = 75
)

// Capturer takes element screenshots.
type Capturer interface {
	CaptureElement(ctx context.Context, el ports.Element) ([]byte, error)
}

type UseCase struct {
	resolver *resolver.Resolver
	store    ports.Store
	capturer Capturer
	logger   ports.Logger
}

// New builds the check. capturer may be nil to skip screenshots.
func New(res *resolver.Resolver, store ports.Store, capturer Capturer, logger ports.Logger) *UseCase {
	if logger == nil {
		logger = ports.NopLogger()
	}
	return &UseCase{resolver: res, store: store, capturer: capturer, logger: logger}
}

// Result lists one report per required role, in order.
type Result struct {
	Reports []entity.RoleReport
}

func (r Result) Missing() []entity.Role {
	var out []entity.Role
	for _, rep := range r.Reports {
		if !rep.Found {
			out = append(out, rep.Role)
		}
	}
	return out
}

func (r Result) OK() bool { return len(r.Missing()) == 0 }

func (uc *UseCase) Run(ctx context.Context) (Result, error) {
	cfg, err := uc.store.LoadConfig(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load config: %w", err)
	}

	var res Result
	for _, role := range entity.RequiredRoles {
		custom, _ := cfg.CustomSelectors.Get(role)
		el, err := uc.find(ctx, role, custom)
		if err != nil && !errors.Is(err, resolver.ErrElementNotFound) {
			return Result{}, fmt.Errorf("%s: %w", role, err)
		}

		report := entity.RoleReport{Role: role, Found: el != nil}
		if el != nil {
			report.Locator = custom
			if report.Locator.IsEmpty() {
				report.Locator = locator.FullXPath(el)
			}
			report.Text = strings.TrimSpace(el.Text())
			report.Screenshot = uc.thumbnail(ctx, role, el)
		}
		uc.logger.Info("Diagnostic", "role", role, "found", report.Found, "locator", report.Locator)
		res.Reports = append(res.Reports, report)
	}
	return res, nil
}

func (uc *UseCase) find(ctx context.Context, role entity.Role, custom entity.Locator) (ports.Element, error) {
	if role == entity.RoleChannelName {
		return uc.resolver.ResolveAsync(ctx, role, custom, 0)
	}
	if el := uc.resolver.Resolve(role, custom); el != nil {
		return el, nil
	}
	return nil, resolver.ErrElementNotFound
}

func (uc *UseCase) thumbnail(ctx context.Context, role entity.Role, el ports.Element) *entity.Screenshot {
	if uc.capturer == nil {
		return nil
	}
	data, err := uc.capturer.CaptureElement(ctx, el)
	if err != nil {
		uc.logger.Warn("Element screenshot failed", "role", role, "error", err)
		return nil
	}
	shot, err := Thumbnail(data)
	if err != nil {
		uc.logger.Warn("Thumbnail failed", "role", role, "error", err)
		return nil
	}
	return shot
}

// Thumbnail decodes an image and shrinks it to at most 320px wide, keeping
// the aspect ratio, and re-encodes it as JPEG.
func Thumbnail(data []byte) (*entity.Screenshot, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > thumbnailWidth {
		img = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
