package ports

import "errors"

var ErrCalibrationAborted = errors.New("calibration aborted")
