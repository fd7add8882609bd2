package managers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hubsync/hubsync/internal/hub"
)

// CICDManager serves build/deploy pipeline services.
type CICDManager struct {
	base
}

func NewCICDManager(deps Deps) *CICDManager {
	return &CICDManager{base{typ: hub.TypeCICD, deps: deps}}
}

type PipelineTrigger struct {
	Pipeline   string            `json:"pipeline"`
	Ref        string            `json:"ref,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

func (m *CICDManager) TriggerPipeline(ctx context.Context, integrationID string, trigger PipelineTrigger) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/pipelines", trigger, &data)
	return envelope(data, err)
}

func (m *CICDManager) GetPipelineStatus(ctx context.Context, integrationID, pipelineID string) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodGet, "/pipelines/"+url.PathEscape(pipelineID), nil, &data)
	return envelope(data, err)
}
