package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/p2p"
)

var (
	nodeHost string
	toAddr   string
	amount   uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transfer and submit it to a node",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&nodeHost, "node", "n", "127.0.0.1:9080", "host:port of the node to submit to")
	sendCmd.Flags().StringVarP(&toAddr, "to", "t", "", "recipient address")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "amount to transfer")
}

func sendRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(privateKeyPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tx, err := database.NewTransfer(privateKey, database.AccountID(toAddr), amount, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := p2p.SubmitTransaction(nodeHost, tx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("submitted tx_hash=%s\n", tx.Hash())
}
