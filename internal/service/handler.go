package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// NewLeakServiceHandler builds an HTTP handler for every LeakService procedure. It
// returns the path to mount the handler on.
func NewLeakServiceHandler(svc *LeakService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PreviewCSVProcedure, connect.NewUnaryHandler(PreviewCSVProcedure, svc.PreviewCSV, opts...))
	mux.Handle(AnalyzeCSVProcedure, connect.NewUnaryHandler(AnalyzeCSVProcedure, svc.AnalyzeCSV, opts...))
	mux.Handle(AnalyzeDocumentProcedure, connect.NewUnaryHandler(AnalyzeDocumentProcedure, svc.AnalyzeDocument, opts...))
	mux.Handle(GetScanProcedure, connect.NewUnaryHandler(GetScanProcedure, svc.GetScan, opts...))
	mux.Handle(ListScansProcedure, connect.NewUnaryHandler(ListScansProcedure, svc.ListScans, opts...))
	mux.Handle(ListFindingsProcedure, connect.NewUnaryHandler(ListFindingsProcedure, svc.ListFindings, opts...))
	mux.Handle(UpdateFindingStatusProcedure, connect.NewUnaryHandler(UpdateFindingStatusProcedure, svc.UpdateFindingStatus, opts...))
	mux.Handle(GetCurrentPlanProcedure, connect.NewUnaryHandler(GetCurrentPlanProcedure, svc.GetCurrentPlan, opts...))
	mux.Handle(UpdatePlanItemStatusProcedure, connect.NewUnaryHandler(UpdatePlanItemStatusProcedure, svc.UpdatePlanItemStatus, opts...))
	mux.Handle(SearchFindingsProcedure, connect.NewUnaryHandler(SearchFindingsProcedure, svc.SearchFindings, opts...))
	mux.Handle(CreateCheckoutSessionProcedure, connect.NewUnaryHandler(CreateCheckoutSessionProcedure, svc.CreateCheckoutSession, opts...))
	mux.Handle(GetSubscriptionProcedure, connect.NewUnaryHandler(GetSubscriptionProcedure, svc.GetSubscription, opts...))
	mux.Handle(CancelSubscriptionProcedure, connect.NewUnaryHandler(CancelSubscriptionProcedure, svc.CancelSubscription, opts...))

	return "/" + ServiceName + "/", mux
}
