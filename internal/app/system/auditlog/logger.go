// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/store/audit"
	"github.com/dalemusser/salescrm/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin and record events (users, territories,
	// deletes, lead conversions). Same values as Auth.
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// requestID reuses the router's request id when there is one so audit rows
// can be joined with access logs.
func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
		zap.String("request_id", event.RequestID),
	}

	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.config.Admin
	if event.Category == audit.CategoryAuth {
		setting = l.config.Auth
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) fromRequest(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: requestID(r),
		Success:   success,
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailed logs a failed login. userID is zero when no user matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID primitive.ObjectID, email, reason string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAuth, eventType, false)
	e.UserID = idPtr(userID)
	e.FailureReason = reason
	e.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, e)
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAuth, audit.EventLogout, true)
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.UserID = &oid
	}
	l.Log(ctx, e)
}

// PasswordChanged logs a user changing their own password.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAuth, audit.EventPasswordChanged, true)
	e.ActorID = idPtr(userID)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

// --- Admin Events ---

// UserCreated logs creation of a user account.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, role string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAdmin, audit.EventUserCreated, true)
	e.ActorID = idPtr(actorID)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// UserUpdated logs a change to a user's role, territory, or status.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, fields string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAdmin, audit.EventUserUpdated, true)
	e.ActorID = idPtr(actorID)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"fields": fields}
	l.Log(ctx, e)
}

// TerritoryChanged logs a territory create or update, including the manager.
func (l *Logger) TerritoryChanged(ctx context.Context, r *http.Request, eventType string, actorID, territoryID primitive.ObjectID, managerID *primitive.ObjectID) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategoryAdmin, eventType, true)
	e.ActorID = idPtr(actorID)
	e.TargetID = idPtr(territoryID)
	if managerID != nil {
		e.Details = map[string]string{"manager_id": managerID.Hex()}
	}
	l.Log(ctx, e)
}

// --- Sales Events ---

// LeadConverted logs a successful conversion with the created record ids.
func (l *Logger) LeadConverted(ctx context.Context, r *http.Request, actorID, leadID, accountID, contactID, dealID primitive.ObjectID) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategorySales, audit.EventLeadConverted, true)
	e.ActorID = idPtr(actorID)
	e.TargetID = idPtr(leadID)
	e.Details = map[string]string{
		"account_id": accountID.Hex(),
		"contact_id": contactID.Hex(),
		"deal_id":    dealID.Hex(),
	}
	l.Log(ctx, e)
}

// LeadConvertRejected logs a refused conversion and its reason.
func (l *Logger) LeadConvertRejected(ctx context.Context, r *http.Request, actorID, leadID primitive.ObjectID, reason string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategorySales, audit.EventLeadConvertRejected, false)
	e.ActorID = idPtr(actorID)
	e.TargetID = idPtr(leadID)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// RecordDeleted logs a delete of an ownable record.
func (l *Logger) RecordDeleted(ctx context.Context, r *http.Request, actorID, recordID primitive.ObjectID, kind string) {
	if l == nil {
		return
	}
	e := l.fromRequest(r, audit.CategorySales, audit.EventRecordDeleted, true)
	e.ActorID = idPtr(actorID)
	e.TargetID = idPtr(recordID)
	e.Details = map[string]string{"kind": kind}
	l.Log(ctx, e)
}
