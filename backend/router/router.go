package router

import (
	"net/http"

	"pt1/backend/app/controllers"
	"pt1/backend/app/middleware"
)

// NewRouter builds the route table. Root tier guards the token exchange
// only; everything else with state behind it takes a session token. The
// audit and request-log middleware wrap the whole mux in the initializer.
func NewRouter(
	rootCtrl *controllers.RootController,
	authCtrl *controllers.AuthController,
	regCtrl *controllers.RegistryController,
	cmdCtrl *controllers.CommandController,
	fileCtrl *controllers.FileController,
	trCtrl *controllers.TranscriptController,
	mw *middleware.Auth,
) http.Handler {
	mux := http.NewServeMux()

	// public
	mux.HandleFunc("GET /{$}", rootCtrl.Overview)

	// root tier
	mux.Handle("POST /auth/token/exchange", mw.RequireRoot(http.HandlerFunc(authCtrl.Exchange)))

	// session tier
	session := func(h http.HandlerFunc) http.Handler { return mw.RequireSession(h) }
	mux.Handle("POST /auth/verify", session(authCtrl.Verify))
	mux.Handle("POST /register_client", session(regCtrl.Register))
	mux.Handle("GET /client_registry", session(regCtrl.List))
	mux.Handle("GET /client_registry/{stable_id}", session(regCtrl.GetOne))
	mux.Handle("POST /terminate_client/{client_id}", session(regCtrl.Terminate))
	mux.Handle("GET /next_command", session(cmdCtrl.Next))
	mux.Handle("POST /send_command", session(cmdCtrl.Send))
	mux.Handle("POST /submit_result", session(cmdCtrl.SubmitResult))
	mux.Handle("GET /get_result/{command_id}", session(cmdCtrl.GetResult))
	mux.Handle("GET /command_history", session(cmdCtrl.History))
	mux.Handle("GET /timed_out_commands", session(cmdCtrl.TimedOut))
	mux.Handle("POST /upload_files/{command_id}", session(fileCtrl.Upload))
	mux.Handle("GET /download_file/{command_id}/{filename}", session(fileCtrl.Download))
	mux.Handle("POST /agent_transcript/{client_id}", session(trCtrl.Upload))
	mux.Handle("GET /agent_transcripts", session(trCtrl.List))
	mux.Handle("GET /agent_transcript/{transcript_id}", session(trCtrl.Get))

	return mux
}
