package netclient

// ValidateStatus accepts 2xx codes. Codes that are not three-digit HTTP
// statuses mean the response itself could not be interpreted.
func ValidateStatus(statusCode int) error {
	switch {
	case statusCode < 100 || statusCode > 999:
		return NewInvalidServerResponseError(nil)
	case statusCode >= 200 && statusCode < 300:
		return nil
	default:
		return NewStatusCodeError(statusCode)
	}
}
