package app

import "errors"

var (
	ErrInvalidInput      = errors.New("required fields are missing")
	ErrPasswordTooLong   = errors.New("password must be at most 72 bytes")
	ErrEmailExists       = errors.New("user already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrUserNotFound      = errors.New("user not found")

	ErrListingNotFound  = errors.New("listing not found")
	ErrForbidden        = errors.New("not allowed to delete this listing")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrTooManyImages    = errors.New("too many images")
	ErrImageTooLarge    = errors.New("image is too large")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// IsValidation reports whether err is caused by a malformed request.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrPasswordTooLong,
		ErrUnknownCategory,
		ErrTooManyImages,
		ErrImageTooLarge,
		ErrUnsupportedImage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
