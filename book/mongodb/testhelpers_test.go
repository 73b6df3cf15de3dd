//go:build integration

package mongodb_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marcelsud/bookshelf-api/book/mongodb"
	"github.com/stretchr/testify/require"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
)

/* Test helpers for the MongoDB integration suite.
 * Each test gets its own collection so suites can share one container.
 */

// MongoContainer holds the container and its connection string
type MongoContainer struct {
	Container *tcmongodb.MongoDBContainer
	URI       string
}

// SetupMongoContainer starts a MongoDB container
func SetupMongoContainer(t *testing.T, ctx context.Context) (*MongoContainer, func()) {
	t.Helper()

	container, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "failed to start MongoDB container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get MongoDB connection string")

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate MongoDB container: %v", err)
		}
	}

	return &MongoContainer{Container: container, URI: uri}, cleanup
}

// CreateTestRepository connects a repository to a fresh collection
func CreateTestRepository(t *testing.T, ctx context.Context, uri string) *mongodb.Repository {
	t.Helper()

	collection := fmt.Sprintf("books_%d", time.Now().UnixNano())
	repo, err := mongodb.NewRepository(ctx, uri, "bookshelf_test", collection)
	require.NoError(t, err, "failed to create MongoDB repository")

	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}
