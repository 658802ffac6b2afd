// Package commands holds the fixed slash command catalog, the typed form of
// each invocation and the routine that registers the catalog on a guild.
package commands

import "github.com/bwmarrin/discordgo"

// Command names, as registered with Discord.
const (
	NameSetWelcome    = "setwelcome"
	NameDelWelcome    = "delwelcome"
	NameSetLogMessage = "set_log_message"
	NameDelLogMessage = "del_log_message"
	NameSetLog        = "set_log"
	NameDelLog        = "del_log"
	NameMessageDelete = "mdelete"
	NameBan           = "ban"
	NameMute          = "mute"
	NameMemberInfo    = "finfo"
)

const (
	optionChannel  = "channel"
	optionUser     = "user"
	optionCount    = "count"
	optionDuration = "duration"
)

// ParamType is the semantic type of a command parameter.
type ParamType int

const (
	ParamChannel ParamType = iota
	ParamUser
	ParamInteger
	ParamString
)

func (p ParamType) optionType() discordgo.ApplicationCommandOptionType {
	switch p {
	case ParamChannel:
		return discordgo.ApplicationCommandOptionChannel
	case ParamUser:
		return discordgo.ApplicationCommandOptionUser
	case ParamInteger:
		return discordgo.ApplicationCommandOptionInteger
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

// Param describes one typed parameter of a command.
type Param struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
}

// Definition describes one slash command.
type Definition struct {
	Name        string
	Description string
	Params      []Param
}

var catalog = []Definition{
	{
		Name:        NameSetWelcome,
		Description: "Select a channel for welcome messages.",
		Params: []Param{
			{Name: optionChannel, Description: "Channel for welcome messages", Type: ParamChannel, Required: true},
		},
	},
	{
		Name:        NameDelWelcome,
		Description: "Delete the welcome channel setting.",
	},
	{
		Name:        NameSetLogMessage,
		Description: "Select a channel for message logging.",
		Params: []Param{
			{Name: optionChannel, Description: "Channel for message logging", Type: ParamChannel, Required: true},
		},
	},
	{
		Name:        NameDelLogMessage,
		Description: "Delete the message log channel setting.",
	},
	{
		Name:        NameSetLog,
		Description: "Select a channel for general logs.",
		Params: []Param{
			{Name: optionChannel, Description: "Channel for general logs", Type: ParamChannel, Required: true},
		},
	},
	{
		Name:        NameDelLog,
		Description: "Delete the general log channel setting.",
	},
	{
		Name:        NameMessageDelete,
		Description: "Delete a specified number of messages",
		Params: []Param{
			{Name: optionCount, Description: "Number of messages to delete", Type: ParamInteger, Required: true},
		},
	},
	{
		Name:        NameBan,
		Description: "Ban a specified user",
		Params: []Param{
			{Name: optionUser, Description: "User to ban", Type: ParamUser, Required: true},
		},
	},
	{
		Name:        NameMute,
		Description: "Mute a specified user",
		Params: []Param{
			{Name: optionUser, Description: "User to mute", Type: ParamUser, Required: true},
			{Name: optionDuration, Description: "Duration in minutes", Type: ParamInteger, Required: false},
		},
	},
	{
		Name:        NameMemberInfo,
		Description: "Fetch user information",
		Params: []Param{
			{Name: optionUser, Description: "User for information", Type: ParamUser, Required: false},
		},
	},
}

// Catalog returns a copy of every command definition in registration order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	for i, def := range catalog {
		def.Params = append([]Param(nil), def.Params...)
		out[i] = def
	}
	return out
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, bool) {
	for _, def := range catalog {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// ApplicationCommands converts the catalog into the payload accepted by the
// Discord bulk overwrite endpoint.
func ApplicationCommands() []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def.ApplicationCommand())
	}
	return out
}

// ApplicationCommand converts d into its discordgo form.
func (d Definition) ApplicationCommand() *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Name:        d.Name,
		Description: d.Description,
	}
	for _, p := range d.Params {
		cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type.optionType(),
			Required:    p.Required,
		})
	}
	return cmd
}
