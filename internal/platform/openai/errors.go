package openai

import (
	"context"
	"errors"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipdeck/clipdeck/internal/domain"
)

// classify tags a transport error as transient or permanent.
//
// An explicit API error status is permanent: the request was delivered and
// rejected, so repeating it cannot help. Network-level failures, deadline
// expiry, and anything whose message mentions a timeout are transient. The
// remainder (undecodable bodies and other client-side surprises) is treated
// as permanent so it never feeds the backoff loop.
func classify(err error) *domain.Fault {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewFault(domain.FaultPermanentGeneration, err)
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return domain.NewFault(domain.FaultTransientGeneration, err)
	}

	return domain.NewFault(domain.FaultPermanentGeneration, err)
}
