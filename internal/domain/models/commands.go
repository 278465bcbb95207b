package models

import "strings"

// CommandType enumerates the chat commands understood by the dispatcher.
type CommandType string

const (
	CommandStockIn  CommandType = "in"
	CommandStockOut CommandType = "out"
	CommandStock    CommandType = "stock"
	CommandReport   CommandType = "report"
	CommandLowStock CommandType = "lowstock"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"in":       CommandStockIn,
	"stockin":  CommandStockIn,
	"out":      CommandStockOut,
	"stockout": CommandStockOut,
	"stock":    CommandStock,
	"find":     CommandStock,
	"report":   CommandReport,
	"lowstock": CommandLowStock,
	"low":      CommandLowStock,
	"help":     CommandHelp,
}

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. Only the command word is
// case-folded; arguments keep their case because part numbers are case-sensitive.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if kind, ok := commandAliases[head]; ok {
		cmd.Type = kind
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}

// AutomationReply is a canned chat answer with an optional title line.
type AutomationReply struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (r AutomationReply) String() string {
	if r.Title == "" {
		return r.Message
	}
	return r.Title + "\n" + r.Message
}
