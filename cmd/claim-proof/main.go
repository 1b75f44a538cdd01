package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/ESES-Labs/shadow-drop/pkg/campaign"
	"github.com/ESES-Labs/shadow-drop/pkg/merkle"
	"github.com/ESES-Labs/shadow-drop/pkg/poseidon"
)

// claim-proof rebuilds the commitment tree from a recipients file and
// prints one recipient's proof payload and nullifier, for feeding a
// circuit witness offline without running the server.

type proofOutput struct {
	Root      string   `json:"root"`
	LeafIndex int      `json:"leaf_index"`
	Siblings  []string `json:"siblings"`
	Leaf      string   `json:"leaf"`
	Nullifier string   `json:"nullifier"`
}

func main() {
	app := &cli.App{
		Name:  "claim-proof",
		Usage: "Generate an inclusion proof and nullifier for one recipient",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "recipients",
				Aliases:  []string{"r"},
				Usage:    "Path to the recipients JSON file (must include secrets)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "identifier",
				Aliases:  []string{"i"},
				Usage:    "Recipient identifier to prove",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "depth",
				Aliases: []string{"d"},
				Value:   merkle.DefaultDepth,
				Usage:   "Tree depth D (must match the published tree)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run(c *cli.Context) error {
	entries, err := campaign.LoadRecipients(c.String("recipients"))
	if err != nil {
		return err
	}

	hasher := poseidon.NewPoseidon2()
	camp, err := campaign.New("offline", entries, c.Int("depth"), hasher)
	if err != nil {
		return err
	}

	identifier := c.String("identifier")
	proof, ok := camp.Proof(identifier)
	if !ok {
		return fmt.Errorf("identifier %q not found in recipients file", identifier)
	}
	nullifier, _ := camp.Nullifier(identifier)

	siblings := make([]string, len(proof.Siblings))
	for i, sib := range proof.Siblings {
		siblings[i] = hexutil.Encode(sib[:])
	}

	out := proofOutput{
		Root:      camp.RootHex(),
		LeafIndex: proof.LeafIndex,
		Siblings:  siblings,
		Leaf:      hexutil.Encode(proof.Leaf[:]),
		Nullifier: hexutil.Encode(nullifier[:]),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
