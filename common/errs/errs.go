package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when a caller passes an unusable value.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Unsupported is returned when a configured feature or backend does not exist.
	Unsupported = ErrorKind("Unsupported")

	// ConflictSetting is returned when persisted indexer state disagrees with the configuration.
	ConflictSetting = ErrorKind("Conflict Setting")

	// MalformedBlock is returned when an upstream block breaks the documented field contract.
	MalformedBlock = ErrorKind("Malformed Block")

	Timeout            = ErrorKind("Timeout")
	Closed             = ErrorKind("Closed")
	InternalError      = ErrorKind("Internal Error")
	SomethingWentWrong = ErrorKind("Something Went Wrong")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
