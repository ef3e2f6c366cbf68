package broker

import "github.com/madbomber/smart-message-sub002/pkg/errors"

// Error codes for broker operations.
const (
	CodeConnectionFailed = "BROKER_CONN_FAILED"
	CodePublishFailed    = "BROKER_PUBLISH_FAILED"
	CodeSubscribeFailed  = "BROKER_SUBSCRIBE_FAILED"
	CodeTimeout          = "BROKER_TIMEOUT"
	CodeClosed           = "BROKER_CLOSED"
	CodeInvalidConfig    = "BROKER_INVALID_CONFIG"
)

// ErrConnectionFailed creates an error for broker connection failures.
func ErrConnectionFailed(err error) *errors.AppError {
	return errors.New(CodeConnectionFailed, "failed to connect to broker", err)
}

// ErrPublishFailed creates an error for publish failures.
func ErrPublishFailed(err error) *errors.AppError {
	return errors.New(CodePublishFailed, "failed to publish to broker", err)
}

// ErrSubscribeFailed creates an error for subscribe failures.
func ErrSubscribeFailed(err error) *errors.AppError {
	return errors.New(CodeSubscribeFailed, "failed to subscribe on broker", err)
}

// ErrClosed creates an error for use of a closed broker connection.
func ErrClosed(err error) *errors.AppError {
	return errors.New(CodeClosed, "broker connection is closed", err)
}

// ErrInvalidConfig creates an error for invalid broker configuration.
func ErrInvalidConfig(msg string, err error) *errors.AppError {
	return errors.New(CodeInvalidConfig, "invalid broker configuration: "+msg, err)
}
