package cmd

// Exit codes for the resource CLI
const (
	// ExitSuccess indicates the request completed successfully
	ExitSuccess = 0

	// ExitRequestFailure indicates the request completed as a failure
	ExitRequestFailure = 1

	// ExitProfileError indicates the profile could not be loaded or built
	ExitProfileError = 2

	// ExitSchemaError indicates the response violated the given schema
	ExitSchemaError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
