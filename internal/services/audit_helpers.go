package services

import "context"

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	_ = audit.Log(ctx, entry)
}

// recordScopedAudit stamps the entry with the scope's workspace and user.
func recordScopedAudit(audit *AuditService, ctx context.Context, scope Scope, entry AuditEntry) {
	workspaceID := scope.WorkspaceID()
	userID := scope.UserID()
	entry.WorkspaceID = &workspaceID
	if entry.UserID == nil {
		entry.UserID = &userID
	}
	if entry.Result == "" {
		entry.Result = "success"
	}
	recordAudit(audit, ctx, entry)
}
