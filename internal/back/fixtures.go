package back

import (
	"context"
	"time"
)

// LoadFixtures creates a handful of rated players for quick testing during
// development.
func (b *Back) LoadFixtures(ctx context.Context) error {
	_, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament:     "Fixtures Open",
		Date:           time.Now().UTC().Truncate(24 * time.Hour),
		AutoAddPlayers: true,
		Items: []AdjustmentItem{
			{Player: "Waldner", Rating: "2400"},
			{Player: "Persson", Rating: "2250"},
			{Player: "Appelgren", Rating: "2100"},
			{Player: "Gatien", Rating: "1950"},
			{Player: "Saive", Rating: "1800"},
			{Player: "Primorac", Rating: "1650"},
		},
	})

	return err
}
