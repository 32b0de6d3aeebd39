package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/service"
)

func (s *Server) registerSubscriptionRoutes() {
	register(s, huma.Operation{
		OperationID: "activateSubscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/subscription/activate",
		Summary:     "Activate subscription key",
		Description: "Binds an unused key to the current user. A key that was already used is not an error: the response reports activated=false.",
		Tags:        []string{"Subscription"},
		Security:    bearerSecurity,
	}, s.handleActivateSubscription)

	register(s, huma.Operation{
		OperationID: "getSubscription",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscription",
		Summary:     "Get subscription status",
		Tags:        []string{"Subscription"},
		Security:    bearerSecurity,
	}, s.handleGetSubscription)

	register(s, huma.Operation{
		OperationID: "cancelSubscription",
		Method:      http.MethodDelete,
		Path:        "/api/v1/subscription",
		Summary:     "Cancel subscription",
		Description: "Deactivates the user's subscriptions. Used keys cannot be activated again.",
		Tags:        []string{"Subscription"},
		Security:    bearerSecurity,
	}, s.handleCancelSubscription)
}

// === DTOs ===

// ActivateSubscriptionRequest is the request body for key activation.
type ActivateSubscriptionRequest struct {
	Key string `json:"key" doc:"Subscription key"`
}

// ActivateSubscriptionInput wraps the activation request for Huma.
type ActivateSubscriptionInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          ActivateSubscriptionRequest
}

// ActivateSubscriptionResponse reports the activation outcome.
type ActivateSubscriptionResponse struct {
	Activated bool   `json:"activated" doc:"Whether the key was bound to the user"`
	Reason    string `json:"reason,omitempty" doc:"Why activation did not happen"`
}

// ActivateSubscriptionOutput wraps the activation response for Huma.
type ActivateSubscriptionOutput struct {
	Body ActivateSubscriptionResponse
}

// SubscriptionStatusResponse describes the user's subscription.
type SubscriptionStatusResponse struct {
	Active       bool                 `json:"active" doc:"Whether premium features are unlocked"`
	Subscription *domain.Subscription `json:"subscription,omitempty" doc:"Active subscription"`
}

// SubscriptionStatusOutput wraps the status for Huma.
type SubscriptionStatusOutput struct {
	Body SubscriptionStatusResponse
}

// CancelSubscriptionResponse reports deactivated subscriptions.
type CancelSubscriptionResponse struct {
	Deactivated int `json:"deactivated" doc:"Number of subscriptions deactivated"`
}

// CancelSubscriptionOutput wraps the cancel response for Huma.
type CancelSubscriptionOutput struct {
	Body CancelSubscriptionResponse
}

// === Handlers ===

func (s *Server) handleActivateSubscription(ctx context.Context, input *ActivateSubscriptionInput) (*ActivateSubscriptionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	activated, err := s.services.Subscription.Activate(ctx, userID, input.Body.Key)
	if err != nil {
		return nil, err
	}

	resp := ActivateSubscriptionResponse{Activated: activated}
	if !activated {
		resp.Reason = service.ReasonAlreadyUsed
	}
	return &ActivateSubscriptionOutput{Body: resp}, nil
}

func (s *Server) handleGetSubscription(ctx context.Context, _ *AuthenticatedInput) (*SubscriptionStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := s.services.Subscription.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionStatusOutput{
		Body: SubscriptionStatusResponse{Active: sub != nil, Subscription: sub},
	}, nil
}

func (s *Server) handleCancelSubscription(ctx context.Context, _ *AuthenticatedInput) (*CancelSubscriptionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.services.Subscription.Deactivate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CancelSubscriptionOutput{Body: CancelSubscriptionResponse{Deactivated: n}}, nil
}
