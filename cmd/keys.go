package cmd

import (
	"encoding/base64"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate SESSION_HASH_KEY and SESSION_BLOCK_KEY values (base64) for sealing the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := securecookie.GenerateRandomKey(64)
			block := securecookie.GenerateRandomKey(32)
			if hash == nil || block == nil {
				return fmt.Errorf("could not read random bytes")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export SESSION_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(out, "export SESSION_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}
