package bot

import "strings"

type CommandType int

const (
	CommandText CommandType = iota
	CommandStart
	CommandStop
	CommandModel
	CommandToken
)

func (c CommandType) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandStop:
		return "stop"
	case CommandModel:
		return "model"
	case CommandToken:
		return "token"
	default:
		return "text"
	}
}

const tokenPrefix = "#"

var commandsByName = map[string]CommandType{
	"/start": CommandStart,
	"/stop":  CommandStop,
	"/model": CommandModel,
}

// ParseCommand classifies message text. A bot mention suffix such as
// "/start@memebot" is ignored, as are arguments after the command.
func ParseCommand(text string) CommandType {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, tokenPrefix) {
		return CommandToken
	}
	if !strings.HasPrefix(text, "/") {
		return CommandText
	}

	name, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	if cmd, ok := commandsByName[strings.ToLower(name)]; ok {
		return cmd
	}
	return CommandText
}
