package directory

import (
	"context"

	"github.com/pkg/errors"

	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/peerclient"
)

// Directory resolves patient and physician display names from the lookup
// collaborator services.
type Directory interface {
	PatientName(ctx context.Context, patientID string) (string, error)
	PhysicianName(ctx context.Context, physicianID string) (string, error)
}

// Client implements Directory over the resilient peer client, so a failing
// collaborator origin is gated the same way a failing sibling is.
type Client struct {
	peers *peerclient.Client
	cfg   config.DirectoryConfig
}

// NewClient creates a directory client.
func NewClient(peers *peerclient.Client, cfg config.DirectoryConfig) *Client {
	return &Client{peers: peers, cfg: cfg}
}

type namedRecord struct {
	Name string `json:"name"`
}

// PatientName resolves a patient's display name.
func (c *Client) PatientName(ctx context.Context, patientID string) (string, error) {
	var record namedRecord
	found, err := c.peers.GetResource(ctx, c.cfg.PatientServiceURL, "patients", patientID, &record)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.Errorf("patient %s not found in directory", patientID)
	}
	return record.Name, nil
}

// PhysicianName resolves a physician's display name.
func (c *Client) PhysicianName(ctx context.Context, physicianID string) (string, error) {
	var record namedRecord
	found, err := c.peers.GetResource(ctx, c.cfg.PhysicianServiceURL, "physicians", physicianID, &record)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.Errorf("physician %s not found in directory", physicianID)
	}
	return record.Name, nil
}

// Authenticate validates credentials against the auth collaborator and
// returns the issued token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	credentials := map[string]string{"username": username, "password": password}
	var result struct {
		Token string `json:"token"`
	}
	found, err := c.peers.Authenticate(ctx, c.cfg.AuthServiceURL, credentials, &result)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.New("authentication service unavailable")
	}
	return result.Token, nil
}
