//go:build !darwin

package audio

func newCaptureImpl() (captureImpl, error) {
	return nil, ErrUnsupported
}
