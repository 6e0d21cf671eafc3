package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chatbot-api/internal/infrastructure/database/entities"
)

func TestMigrationFiles_Ordered(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_conversations.down.sql",
		"000001_create_conversations.up.sql",
		"000002_create_messages.down.sql",
		"000002_create_messages.up.sql",
	}, files)
}

func TestMigrate_SQLite(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(context.Background(), db, zerolog.Nop()))

	assert.True(t, db.Migrator().HasTable(&entities.Conversation{}))
	assert.True(t, db.Migrator().HasTable(&entities.Message{}))
	assert.True(t, db.Migrator().HasIndex(&entities.Message{}, "idx_messages_conversation_created"))
}

func TestConnect_Validation(t *testing.T) {
	_, err := Connect(Config{Driver: DriverSQLite})
	assert.Error(t, err)

	_, err = Connect(Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}
