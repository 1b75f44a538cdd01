package campaign

import (
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	shadowcrypto "github.com/ESES-Labs/shadow-drop/pkg/crypto"
	"github.com/ESES-Labs/shadow-drop/pkg/types"
)

// recipientRecord is the on-disk shape of one recipient. Secret is
// optional 0x-hex; when absent a fresh one is generated during load.
type recipientRecord struct {
	Identifier string  `json:"identifier"`
	Amount     float64 `json:"amount"`
	Secret     string  `json:"secret,omitempty"`
}

// LoadRecipients reads a recipient seed file (a JSON array of
// {identifier, amount, secret?}) and returns entries ready for tree
// construction. Records without a secret get one from the CSPRNG, so a
// plain allowlist file can be used to seed a campaign.
func LoadRecipients(path string) ([]types.RecipientEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read recipients file %s", path)
	}

	var records []recipientRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "failed to parse recipients file %s", path)
	}

	entries := make([]types.RecipientEntry, 0, len(records))
	for i, rec := range records {
		if rec.Identifier == "" {
			return nil, errors.Errorf("recipient %d has no identifier", i)
		}

		entry := types.RecipientEntry{
			Identifier: rec.Identifier,
			Amount:     rec.Amount,
		}

		if rec.Secret != "" {
			raw, err := hexutil.Decode(rec.Secret)
			if err != nil {
				return nil, errors.Wrapf(err, "recipient %q has a malformed secret", rec.Identifier)
			}
			if len(raw) != 32 {
				return nil, errors.Errorf("recipient %q secret is %d bytes, want 32", rec.Identifier, len(raw))
			}
			copy(entry.Secret[:], raw)
		} else {
			secret, err := shadowcrypto.GenerateSecret()
			if err != nil {
				return nil, errors.Wrapf(err, "failed to generate secret for %q", rec.Identifier)
			}
			entry.Secret = secret
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// WriteRecipients writes entries back to a seed file, secrets included.
// Used after loading an allowlist so generated secrets survive a
// restart and can be handed to recipients.
func WriteRecipients(path string, entries []types.RecipientEntry) error {
	records := make([]recipientRecord, len(entries))
	for i, entry := range entries {
		records[i] = recipientRecord{
			Identifier: entry.Identifier,
			Amount:     entry.Amount,
			Secret:     hexutil.Encode(entry.Secret[:]),
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode recipients")
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write recipients file %s", path)
	}

	return nil
}
