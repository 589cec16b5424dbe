package prompt

import (
	"gorm.io/gorm"

	promptDomain "brokle/internal/core/domain/prompt"
)

// Migrate auto-migrates every table the Store touches, including the
// vector_records table owned by the linear-scan VectorIndex (kept here
// since both share one physical database).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&promptDomain.Prompt{},
		&promptDomain.PromptVersion{},
		&promptDomain.PromptRole{},
		&promptDomain.LLMConfig{},
		&promptDomain.Tag{},
		&promptDomain.PromptTag{},
		&promptDomain.PrinciplePrompt{},
		&promptDomain.PrincipleRef{},
		&promptDomain.LLMClient{},
		&promptDomain.ClientMapping{},
		&promptDomain.AppConfig{},
	); err != nil {
		return err
	}
	return db.Exec(`CREATE TABLE IF NOT EXISTS vector_records (
		version_id TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL,
		vector TEXT NOT NULL
	)`).Error
}
