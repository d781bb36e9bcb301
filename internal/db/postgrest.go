package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	postgrest "github.com/supabase-community/postgrest-go"

	"videothingy/models"
)

// Querier builds PostgREST queries. Both *postgrest.Client and the
// Supabase client satisfy it.
type Querier interface {
	From(table string) *postgrest.QueryBuilder
}

// PostgrestStore keeps projects in a PostgREST table.
type PostgrestStore struct {
	client Querier
	table  string
}

// NewPostgrestStore returns a store over table.
func NewPostgrestStore(client Querier, table string) *PostgrestStore {
	return &PostgrestStore{client: client, table: table}
}

// NewPostgrestClient creates a PostgREST client authenticated with the
// service key. restURL is the /rest/v1 root.
func NewPostgrestClient(restURL, apiKey string) (*postgrest.Client, error) {
	client := postgrest.NewClient(restURL, "", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	if client.ClientError != nil {
		return nil, errors.Wrap(client.ClientError, "failed to initialize PostgREST client")
	}
	return client, nil
}

// GetProject fetches one project by id.
func (s *PostgrestStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	body, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, errors.Wrapf(err, "error fetching project %s", id)
	}

	var projects []models.Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling project %s", id)
	}
	if len(projects) == 0 {
		return nil, ErrProjectNotFound
	}
	return &projects[0], nil
}

// UpdateProject patches the given fields on one project.
func (s *PostgrestStore) UpdateProject(_ context.Context, id string, fields Fields) error {
	update := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	update[FieldUpdatedAt] = time.Now().UTC()

	var updated []models.Project
	_, err := s.client.From(s.table).
		Update(update, "representation", "").
		Eq("id", id).
		ExecuteTo(&updated)
	if err != nil {
		return errors.Wrapf(err, "failed to update project %s", id)
	}
	if len(updated) == 0 {
		return ErrProjectNotFound
	}
	return nil
}
