package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"twitterclone/internal/store"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Dump all tweets and authors to STDOUT",
		Long: `Prints one line per tweet, newest first:

  <tweet_id>,<author>,<text>,<created_at>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer st.Close()
			return dumpTweets(cmd.Context(), st, cmd.OutOrStdout())
		},
	}
}

func dumpTweets(ctx context.Context, st *store.Store, w io.Writer) error {
	tweets, err := st.ListTweets(ctx)
	if err != nil {
		return err
	}
	for _, t := range tweets {
		fmt.Fprintf(w, "%d,%s,%s,%d\n", t.ID, t.Author(), t.Text, t.CreatedAt.Unix())
	}
	return nil
}
