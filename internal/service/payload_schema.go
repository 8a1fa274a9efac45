package service

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/vetted-notifier/internal/dto"
)

//go:embed schemas/webhook_payload.schema.json
var webhookPayloadSchema string

var (
	payloadSchemaOnce sync.Once
	payloadSchema     *jsonschema.Schema
	payloadSchemaErr  error
)

// WebhookPayloadSchema returns the raw JSON schema of the outbound payload.
func WebhookPayloadSchema() string {
	return webhookPayloadSchema
}

// ValidatePayloadSchema checks the wire form of payload against the published contract.
func ValidatePayloadSchema(payload dto.WebhookPayload) error {
	payloadSchemaOnce.Do(func() {
		payloadSchema, payloadSchemaErr = jsonschema.CompileString("webhook_payload.schema.json", webhookPayloadSchema)
	})
	if payloadSchemaErr != nil {
		return fmt.Errorf("compile payload schema: %w", payloadSchemaErr)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var document interface{}
	if err := json.Unmarshal(encoded, &document); err != nil {
		return err
	}

	return payloadSchema.Validate(document)
}
