// Command validate-xml validates XML documents against their declared XSD
// schemas, in parallel, with schema caching across runs.
package main

import (
	"os"

	"github.com/xmlvalid/validator/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
