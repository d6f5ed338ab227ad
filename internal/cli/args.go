package cli

import (
	"fmt"
	"strconv"

	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// maxPositionalArgs is the number of optional positional arguments; more
// than that prints the usage line instead of running.
const maxPositionalArgs = 4

const usageLine = "Usage: ingestor [num_records] [saved_objects_file_path] [replace_timestamp] [replace_title]"

// positionalArgs holds the values of the optional positional arguments.
type positionalArgs struct {
	numRecords       int
	templatePath     string
	replaceTimestamp bool
	replaceTitle     bool
}

// parsePositionalArgs applies defaults for missing arguments and parses the
// rest. Errors contain "invalid argument" so they map to the usage exit code.
func parsePositionalArgs(args []string) (positionalArgs, error) {
	pos := positionalArgs{
		numRecords:       ingestor.DefaultNumRecords,
		templatePath:     ingestor.DefaultTemplatePath,
		replaceTimestamp: ingestor.DefaultReplaceTimestamp,
		replaceTitle:     ingestor.DefaultReplaceTitle,
	}

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return pos, fmt.Errorf("invalid argument %q for num_records: must be a non-negative integer", args[0])
		}
		pos.numRecords = n
	}

	if len(args) > 1 {
		if args[1] == "" {
			return pos, fmt.Errorf("invalid argument %q for saved_objects_file_path: must not be empty", args[1])
		}
		pos.templatePath = args[1]
	}

	if len(args) > 2 {
		b, err := parseBoolArg("replace_timestamp", args[2])
		if err != nil {
			return pos, err
		}
		pos.replaceTimestamp = b
	}

	if len(args) > 3 {
		b, err := parseBoolArg("replace_title", args[3])
		if err != nil {
			return pos, err
		}
		pos.replaceTitle = b
	}

	return pos, nil
}

func parseBoolArg(name, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid argument %q for %s: must be true or false", value, name)
	}
	return b, nil
}
