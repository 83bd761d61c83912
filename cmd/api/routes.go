package main

import (
	"log/slog"
	"net/http"

	"github.com/worklane/backend/internal/auth"
	"github.com/worklane/backend/internal/handlers"
	"github.com/worklane/backend/internal/middleware"
	"github.com/worklane/backend/internal/repository"
	"github.com/worklane/backend/internal/services"
)

// RegisterRoutes adds the /v1 API endpoints to the given mux. Every
// route past /v1/auth runs behind the bearer-token middleware.
func RegisterRoutes(
	mux *http.ServeMux,
	authHandler *auth.Handler,
	authSvc auth.Service,
	jobSvc *services.JobService,
	proposalSvc *services.ProposalService,
	hiringSvc *services.HiringService,
	contractSvc *services.ContractService,
	escrowSvc *services.EscrowService,
	notificationRepo *repository.NotificationRepo,
	logger *slog.Logger,
) {
	jh := &handlers.JobHandler{Svc: jobSvc, Log: logger}
	ph := &handlers.ProposalHandler{Svc: proposalSvc, Hiring: hiringSvc, Log: logger}
	ch := &handlers.ContractHandler{Svc: contractSvc, Log: logger}
	pay := &handlers.PaymentHandler{Svc: escrowSvc, Log: logger}
	nh := &handlers.NotificationHandler{Repo: notificationRepo, Log: logger}

	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)

	authed := middleware.RequireAuth(authSvc)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	handle("POST /v1/jobs", jh.Create)
	handle("GET /v1/jobs", jh.List)
	handle("GET /v1/jobs/{id}", jh.Get)
	handle("GET /v1/jobs/{id}/proposals", ph.ListForJob)

	handle("POST /v1/proposals", ph.Submit)
	handle("GET /v1/proposals", ph.ListMine)
	handle("GET /v1/proposals/{id}", ph.Get)
	handle("PATCH /v1/proposals/{id}", ph.Edit)
	handle("PATCH /v1/proposals/{id}/hire", ph.Hire)
	handle("PATCH /v1/proposals/{id}/withdraw", ph.Withdraw)
	handle("PATCH /v1/proposals/{id}/viewed", ph.MarkViewed)
	handle("DELETE /v1/proposals/{id}", ph.Delete)

	handle("GET /v1/contracts", ch.ListMine)
	handle("GET /v1/contracts/{id}", ch.Get)
	handle("POST /v1/contracts/{id}/submit-work", ch.SubmitWork)
	handle("POST /v1/contracts/{id}/complete", ch.Complete)

	handle("POST /v1/payments", pay.Create)
	handle("GET /v1/payments", pay.ListMine)
	handle("GET /v1/payments/{id}", pay.Get)
	handle("POST /v1/payments/{id}/process", pay.Process)
	handle("POST /v1/payments/{id}/refund", pay.Refund)

	handle("GET /v1/notifications", nh.ListMine)
}
