//go:build !darwin

package inject

func newInjector() (Injector, error) {
	return nil, ErrUnsupported
}
