package cmd

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/radixwalk/arch/power/radix"
	"github.com/sarchlab/radixwalk/mem/mem"
)

func newDumpCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the memory words the scenario populates.",
		Long: `Dump prints every nonzero doubleword of the scenario memory in ` +
			`address order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.loadScenario()
			if err != nil {
				return err
			}

			storage, err := s.NewStorage()
			if err != nil {
				return err
			}

			var writeErr error

			storage.Units(func(u *mem.Unit) bool {
				for off := 0; off+radix.WordSize <= len(u.Data); off += radix.WordSize {
					word := binary.BigEndian.Uint64(u.Data[off:])
					if word == 0 {
						continue
					}

					_, writeErr = fmt.Fprintf(cmd.OutOrStdout(), "0x%010x: 0x%016x\n",
						u.Base+uint64(off), word)
					if writeErr != nil {
						return false
					}
				}

				return true
			})

			return writeErr
		},
	}
}
