package bot

import (
	"fmt"
	"strings"
)

// ParseTargetArg extracts the target identifier from a command argument
// string. The last whitespace-separated field wins, so the command also
// works when pasted together with extra text.
func ParseTargetArg(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", fmt.Errorf("target identifier is required")
	}
	return fields[len(fields)-1], nil
}
