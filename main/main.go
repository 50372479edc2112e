// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"

	"github.com/chain4travel/caminodao/cli"
)

func main() {
	os.Exit(cli.Execute())
}
