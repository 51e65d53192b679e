package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/config"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/logfile"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/merkle"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/rollinghash"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/verifier"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/metrics"
)

var (
	logFlag = &cli.PathFlag{
		Name:     "log",
		Usage:    "Path of a YAML or JSON message log dump",
		Required: true,
	}
	directionFlag = &cli.StringFlag{
		Name:  "direction",
		Usage: "Message direction, l1-to-l2 or l2-to-l1",
		Value: types.L1ToL2.String(),
	}
	protocolFlag = &cli.PathFlag{
		Name:  "protocol.config",
		Usage: "Path of a TOML protocol config file",
	}
	hashFlag = &cli.StringFlag{
		Name:     "hash",
		Usage:    "Hash of the message to prove",
		Required: true,
	}
	proofFlag = &cli.PathFlag{
		Name:     "proof",
		Usage:    "Path of a proof file, as written by the prove command",
		Required: true,
	}
)

// ProofFile is the output of the prove command and the input of the verify command.
type ProofFile struct {
	Message    types.Message          `json:"message"`
	Proof      types.MerkleProof      `json:"proof"`
	Commitment types.MerkleCommitment `json:"commitment"`
}

func writeJSON(ctx *cli.Context, v any) error {
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var replayCommand = &cli.Command{
	Name:  "replay",
	Usage: "Recomputes the message hashes and the rolling hash chain of a message log dump",
	Flags: []cli.Flag{logFlag, directionFlag},
	Action: func(ctx *cli.Context) error {
		dir, err := types.ParseDirection(ctx.String(directionFlag.Name))
		if err != nil {
			return err
		}
		f, err := logfile.Load(ctx.Path(logFlag.Name))
		if err != nil {
			return err
		}
		entries, err := rollinghash.Replay(f.Direction(dir))
		logfile.WriteReplayTable(ctx.App.Writer, entries)
		return err
	},
}

var commitmentsCommand = &cli.Command{
	Name:  "commitments",
	Usage: "Rebuilds the Merkle commitments of a message log dump",
	Flags: []cli.Flag{logFlag, protocolFlag},
	Action: func(ctx *cli.Context) error {
		p, err := config.LoadProtocol(ctx.Path(protocolFlag.Name))
		if err != nil {
			return err
		}
		f, err := logfile.Load(ctx.Path(logFlag.Name))
		if err != nil {
			return err
		}
		m, err := logfile.Rebuild(ctx.Context, log.Root(), p, f)
		if err != nil {
			return err
		}
		commitments, err := m.Commitments()
		if err != nil {
			return err
		}
		logfile.WriteCommitmentTable(ctx.App.Writer, commitments)
		return nil
	},
}

var proveCommand = &cli.Command{
	Name:  "prove",
	Usage: "Builds the Merkle inclusion proof of a message of a log dump",
	Flags: []cli.Flag{logFlag, protocolFlag, hashFlag},
	Action: func(ctx *cli.Context) error {
		var hash common.Hash
		if err := hash.UnmarshalText([]byte(ctx.String(hashFlag.Name))); err != nil {
			return fmt.Errorf("invalid message hash: %w", err)
		}
		p, err := config.LoadProtocol(ctx.Path(protocolFlag.Name))
		if err != nil {
			return err
		}
		f, err := logfile.Load(ctx.Path(logFlag.Name))
		if err != nil {
			return err
		}
		m, err := logfile.Rebuild(ctx.Context, log.Root(), p, f)
		if err != nil {
			return err
		}
		msg, err := m.Message(types.L2ToL1, hash)
		if err != nil {
			return err
		}
		proof, c, err := m.ProofFor(hash)
		if err != nil {
			return err
		}
		return writeJSON(ctx, ProofFile{Message: *msg, Proof: *proof, Commitment: *c})
	},
}

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "Checks a Merkle inclusion proof against its commitment",
	Flags: []cli.Flag{proofFlag},
	Action: func(ctx *cli.Context) error {
		data, err := os.ReadFile(ctx.Path(proofFlag.Name))
		if err != nil {
			return fmt.Errorf("failed to read proof file: %w", err)
		}
		var pf ProofFile
		if err := json.Unmarshal(data, &pf); err != nil {
			return fmt.Errorf("failed to decode proof file: %w", err)
		}
		if err := pf.Message.CheckHash(); err != nil {
			return err
		}
		root := merkle.ComputeRoot(pf.Message.Hash, pf.Proof.LeafIndex, pf.Proof.SiblingPath)
		if err := verifier.CheckMerkleProof(&pf.Commitment, &pf.Message, &pf.Proof); err != nil {
			return errors.Join(err, writeJSON(ctx, map[string]any{"valid": false, "computedRoot": root}))
		}
		return writeJSON(ctx, map[string]any{"valid": true, "computedRoot": root})
	},
}

var docCommand = &cli.Command{
	Name: "doc",
	Subcommands: []*cli.Command{
		{
			Name:  "metrics",
			Usage: "Dumps a list of supported metrics to stdout",
			Action: func(ctx *cli.Context) error {
				return writeJSON(ctx, metrics.NewMetrics("default").Document())
			},
		},
	},
}
