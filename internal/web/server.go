// Package web serves the keeper dashboard: tracked tasks as JSON and the
// decision journal as a server-sent event stream.
package web

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const decisionPollInterval = 3 * time.Second

type taskLister interface {
	List() []domain.SubmittedTask
}

type decisionReader interface {
	EventsAfter(index uint64) ([]domain.DecisionEventRecord, error)
}

// Server exposes the dashboard endpoints.
type Server struct {
	Addr          string
	Tasks         taskLister
	DecisionStore decisionReader

	l            *zap.Logger
	pollInterval time.Duration
}

// NewServer creates a new web server instance.
func NewServer(l *zap.Logger, addr string, tasks taskLister, decisions decisionReader) *Server {
	return &Server{Addr: addr, Tasks: tasks, DecisionStore: decisions, l: l, pollInterval: decisionPollInterval}
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/decisions/stream", s.handleDecisionStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("dashboard listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with ACME certificates and an HTTP
// server on :80 for the HTTP-01 challenge.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Warn("acme server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Warn("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("acme server", zap.Error(err))
		}
	}()

	s.l.Info("dashboard listening with tls", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// taskView is the JSON shape of a tracked task.
type taskView struct {
	ID             domain.TaskID `json:"id"`
	Owner          string        `json:"owner"`
	InToken        string        `json:"in_token"`
	OutToken       string        `json:"out_token"`
	AmountPerTrade string        `json:"amount_per_trade"`
	TradesLeft     uint64        `json:"trades_left"`
	Remaining      string        `json:"remaining"`
	// PendingApproval is the allowance the owner needs for all tracked cycles selling InToken.
	PendingApproval string    `json:"pending_approval,omitempty"`
	NextDue         time.Time `json:"next_due"`
	Block           uint64    `json:"block"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if s.Tasks == nil {
		http.Error(w, "task registry not available", http.StatusServiceUnavailable)
		return
	}

	tasks := s.Tasks.List()
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		var pending string
		if !t.Order.IsNativeIn() {
			pending = domain.PendingApproval(tasks, t.Order.Owner, t.Order.InToken).String()
		}
		views = append(views, taskView{
			ID:              t.ID,
			Owner:           t.Order.Owner.Hex(),
			InToken:         t.Order.InToken.Hex(),
			OutToken:        t.Order.OutToken.Hex(),
			AmountPerTrade:  t.Order.AmountPerTrade.String(),
			TradesLeft:      t.Order.TradesLeft,
			Remaining:       t.Order.Remaining().String(),
			PendingApproval: pending,
			NextDue:         t.Order.NextDue().UTC(),
			Block:           t.Block,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.l.Warn("encode tasks", zap.Error(err))
	}
}

func (s *Server) handleDecisionStream(w http.ResponseWriter, r *http.Request) {
	if s.DecisionStore == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "decision store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()

	lastIndex := s.parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_event_id"))
	sendDecisions := func() error {
		records, err := s.DecisionStore.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			wrapper := struct {
				Type string               `json:"type"`
				Data domain.DecisionEvent `json:"data"`
			}{
				Type: string(record.Type),
				Data: record.Event,
			}

			payload, err := json.Marshal(wrapper)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: decision\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendDecisions(); err != nil {
		http.Error(w, "failed to load decisions", http.StatusInternalServerError)
		s.l.Error("decision stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendDecisions(); err != nil {
				s.l.Warn("decision stream poll", zap.Error(err))
			}
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		fmt.Fprint(w, indexHTML)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Vary", "Accept-Encoding")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	fmt.Fprint(gz, indexHTML)
}

// parseLastEventID prefers the Last-Event-ID header; the query parameter allows manual resumes.
func (s *Server) parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		s.l.Debug("invalid last event id", zap.String("id", idStr), zap.Error(err))
		return 0
	}
	return id
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>dcakeeper</title>
<style>
body{font-family:ui-monospace,monospace;background:#111;color:#ddd;margin:2em}
table{border-collapse:collapse;width:100%;margin-bottom:2em}
td,th{border-bottom:1px solid #333;padding:4px 8px;text-align:left}
.ok{color:#73F59F}.notok{color:#f5a973}.err{color:#f57373}
</style>
</head>
<body>
<h1>dcakeeper</h1>
<h2>Tracked tasks</h2>
<table id="tasks"><thead><tr><th>id</th><th>owner</th><th>in</th><th>out</th><th>per trade</th><th>left</th><th>next due</th><th>approval needed</th></tr></thead><tbody></tbody></table>
<h2>Decisions</h2>
<table id="decisions"><thead><tr><th>time</th><th>type</th><th>task</th><th>status</th><th>venue</th><th>output</th><th>fee</th><th>tx</th></tr></thead><tbody></tbody></table>
<script>
function short(a){return a?a.slice(0,8)+'…'+a.slice(-4):''}
function row(cells,cls){const tr=document.createElement('tr');
  cells.forEach((v,i)=>{const td=document.createElement('td');td.textContent=v==null?'':String(v);
    if(cls&&cls[i])td.className=cls[i];tr.appendChild(td);});
  return tr;}
function loadTasks(){
  fetch('/tasks').then(r=>r.json()).then(tasks=>{
    const body=document.querySelector('#tasks tbody');body.replaceChildren();
    tasks.forEach(t=>body.appendChild(row([t.id,short(t.owner),short(t.in_token),short(t.out_token),t.amount_per_trade,t.trades_left,t.next_due,t.pending_approval])));
  });
}
function connect(){
  const es=new EventSource('/decisions/stream');
  es.addEventListener('decision',e=>{
    const d=JSON.parse(e.data),ev=d.data;
    const cls=ev.error?'err':(ev.status==='OK'?'ok':'notok');
    const tr=row([ev.ts,d.type,ev.task_id,ev.error||ev.status,ev.venue,ev.output,ev.fee,short(ev.tx_hash)],{3:cls});
    const body=document.querySelector('#decisions tbody');body.insertBefore(tr,body.firstChild);
  });
}
loadTasks();setInterval(loadTasks,5000);connect();
</script>
</body>
</html>`
