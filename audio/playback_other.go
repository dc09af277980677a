//go:build !darwin

package audio

func newPlaybackImpl() (playbackImpl, error) {
	return nil, ErrUnsupported
}
