package services

import (
	"context"
	"log"

	"creerlio_server/models"
	"creerlio_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileDirectory resolves a display name for a party, best-effort. The
// engine and gate never depend on a name being resolvable; an empty result
// means "name unavailable" and callers must render accordingly.
type ProfileDirectory interface {
	DisplayName(ctx context.Context, role models.Role, partyID string) string
}

// DynamoProfileDirectory reads the profile tables directly. Lookups that miss
// or fail return "" rather than an error.
type DynamoProfileDirectory struct {
	Dynamo *DynamoService
}

func (d *DynamoProfileDirectory) DisplayName(ctx context.Context, role models.Role, partyID string) string {
	table := models.TalentProfilesTable
	if role == models.RoleBusiness {
		table = models.BusinessProfilesTable
	}

	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: partyID},
	}
	profile, err := d.Dynamo.GetItem(ctx, table, key)
	if err != nil || profile == nil {
		log.Printf("No display name available for %s %s", role, partyID)
		return ""
	}

	// Business profiles carry several name fields; take the first non-empty.
	if name := utils.ExtractString(profile, "businessName"); name != "" {
		return name
	}
	if name := utils.ExtractString(profile, "name"); name != "" {
		return name
	}
	return utils.ExtractString(profile, "title")
}
