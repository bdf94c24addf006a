// Package protocol defines the API request/response types.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

// CreateNodeRequest is the body for POST /folders.
type CreateNodeRequest struct {
	Name     string          `json:"name"`
	Type     models.NodeType `json:"type"`
	ParentID *string         `json:"parentId"`
	Size     *int64          `json:"size,omitempty"`
}

// UpdateNodeRequest is the body for PATCH /folders/{id}.
// An explicit "parentId": null moves the node to the root.
type UpdateNodeRequest struct {
	Name     *string          `json:"name,omitempty"`
	Type     *models.NodeType `json:"type,omitempty"`
	Size     *int64           `json:"size,omitempty"`
	ParentID *string          `json:"parentId,omitempty"`

	// ParentSet is true when the body carried a parentId key.
	ParentSet bool `json:"-"`
}

// UnmarshalJSON records whether parentId was present, null or not.
func (r *UpdateNodeRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateNodeRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*r = UpdateNodeRequest(p)
	_, r.ParentSet = keys["parentId"]
	return nil
}

// MarshalJSON writes parentId as null when ParentSet is true and ParentID is nil.
func (r UpdateNodeRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{})
	if r.Name != nil {
		body["name"] = *r.Name
	}
	if r.Type != nil {
		body["type"] = *r.Type
	}
	if r.Size != nil {
		body["size"] = *r.Size
	}
	if r.ParentSet || r.ParentID != nil {
		body["parentId"] = r.ParentID
	}
	return json.Marshal(body)
}

// Patch converts the request into a models.NodePatch.
func (r UpdateNodeRequest) Patch() models.NodePatch {
	return models.NodePatch{
		Name:      r.Name,
		Type:      r.Type,
		Size:      r.Size,
		ParentID:  r.ParentID,
		ParentSet: r.ParentSet || r.ParentID != nil,
	}
}

// UpdateFromPatch builds a request body from a patch.
func UpdateFromPatch(p models.NodePatch) UpdateNodeRequest {
	return UpdateNodeRequest{
		Name:      p.Name,
		Type:      p.Type,
		Size:      p.Size,
		ParentID:  p.ParentID,
		ParentSet: p.ParentSet,
	}
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// DeleteResponse is returned by DELETE /folders/{id}.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted int64  `json:"deleted"`
}

// NodeEvent is sent on the GET /folders/events stream.
type NodeEvent struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	ParentID  *string `json:"parentId,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// DecodeNode accepts either a single node object or an array holding one
// node, since POST /folders has historically answered with both shapes.
func DecodeNode(data []byte) (*models.Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	if data[0] == '[' {
		var nodes []*models.Node
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, err
		}
		if len(nodes) == 0 || nodes[0] == nil {
			return nil, fmt.Errorf("empty node array")
		}
		return nodes[0], nil
	}
	var n models.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
