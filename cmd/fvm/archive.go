package main

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
)

func newLogsCmd(n *node) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "logs <call-id>",
		Short: "Print the logs archived for a committed call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := n.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id := common.HexToHash(args[0])
			logs, ok, err := store.GetLogs(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no logs archived for %s", id.Hex())
			}
			if asJSON {
				out, err := json.MarshalIndent(logs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			tree := treeprint.NewWithRoot(id.Hex())
			for i, l := range logs {
				lb := tree.AddMetaBranch(i, l.Address.Hex())
				for j, t := range l.Topics {
					lb.AddMetaNode(fmt.Sprintf("topic%d", j), t.Hex())
				}
				lb.AddMetaNode("data", common.Bytes2Hex(l.Data))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tree.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newStorageCmd(n *node) *cobra.Command {
	return &cobra.Command{
		Use:   "storage [address]",
		Short: "Print the persisted storage of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, ok := n.cfg.ContractAddress()
			if len(args) == 1 {
				if !common.IsHexAddress(args[0]) {
					return fmt.Errorf("invalid address %q", args[0])
				}
				addr, ok = common.HexToAddress(args[0]), true
			}
			if !ok {
				return fmt.Errorf("no address given")
			}
			store, err := n.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			slots, err := store.Slots(addr)
			if err != nil {
				return err
			}
			tree := treeprint.NewWithRoot(fmt.Sprintf("%s (%d slots)", addr.Hex(), len(slots)))
			for _, s := range slots {
				tree.AddMetaNode(s.Key.Hex(), s.Value.Hex())
			}
			fmt.Fprintln(cmd.OutOrStdout(), tree.String())
			return nil
		},
	}
}

func newCodeCmd(n *node) *cobra.Command {
	var asHex bool
	cmd := &cobra.Command{
		Use:   "code <code-hash>",
		Short: "Print code stored by a committed call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := n.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			h := common.HexToHash(args[0])
			code, ok, err := store.GetCode(h)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no code stored for %s", h.Hex())
			}
			if asHex {
				fmt.Fprintln(cmd.OutOrStdout(), common.Bytes2Hex(code))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), opcodes.DisassembleString(code))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "print raw hex instead of a listing")
	return cmd
}
