package logfile

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/rollinghash"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

func WriteReplayTable(w io.Writer, entries []rollinghash.ReplayEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Number", "Message hash", "Rolling hash"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, e := range entries {
		table.Append([]string{strconv.FormatUint(e.MessageNumber, 10), e.MessageHash.Hex(), e.RollingHash.Hex()})
	}
	table.Render()
}

func WriteCommitmentTable(w io.Writer, commitments []types.MerkleCommitment) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tree", "Blocks", "Leaves", "Depth", "Root"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, c := range commitments {
		table.Append([]string{
			strconv.FormatUint(c.TreeIndex, 10),
			c.Range.String(),
			strconv.FormatUint(c.LeafCount, 10),
			strconv.Itoa(int(c.Depth)),
			c.Root.Hex(),
		})
	}
	table.Render()
}
