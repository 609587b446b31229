package provider

import (
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// TypeContract marks replies that broke the expected response contract,
// such as an empty completion.
const TypeContract = "provider_contract"

// Error is the failure of one upstream provider call.
type Error struct {
	Provider string
	Status   int
	Type     string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error [%d]: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ContractError reports a reply that arrived but carried nothing usable.
func ContractError(provider string, err error) *Error {
	return &Error{
		Provider: provider,
		Type:     TypeContract,
		Message:  err.Error(),
		Err:      err,
	}
}

// FromOpenAI converts a go-openai client error into an *Error.
func FromOpenAI(provider string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		perr := &Error{
			Provider: provider,
			Status:   apiErr.HTTPStatusCode,
			Type:     apiErr.Type,
			Message:  apiErr.Message,
			Err:      err,
		}
		if apiErr.Code != nil {
			perr.Code = fmt.Sprint(apiErr.Code)
		}
		return perr
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.Error()
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &Error{
			Provider: provider,
			Status:   reqErr.HTTPStatusCode,
			Message:  msg,
			Err:      err,
		}
	}

	return &Error{Provider: provider, Message: err.Error(), Err: err}
}
