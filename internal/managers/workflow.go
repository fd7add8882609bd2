package managers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hubsync/hubsync/internal/hub"
)

// WorkflowManager serves issue/ticket systems (Jira-style).
type WorkflowManager struct {
	base
}

func NewWorkflowManager(deps Deps) *WorkflowManager {
	return &WorkflowManager{base{typ: hub.TypeWorkflow, deps: deps}}
}

type WorkflowItem struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}

func (m *WorkflowManager) CreateWorkflowItem(ctx context.Context, integrationID string, item WorkflowItem) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/items", item, &data)
	return envelope(data, err)
}

func (m *WorkflowManager) UpdateWorkflowItem(ctx context.Context, integrationID, itemID string, patch map[string]any) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPatch, "/items/"+url.PathEscape(itemID), patch, &data)
	return envelope(data, err)
}
