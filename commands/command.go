package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/models"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingOption  = errors.New("missing required option")
)

// Command is a parsed invocation. The concrete types below are the only
// implementations.
type Command interface {
	CommandName() string
	isCommand()
}

// SetChannel points one channel field at a channel.
type SetChannel struct {
	Name        string
	Field       models.ChannelField
	ChannelID   string
	ChannelName string
}

// ClearChannel reverts one channel field to unset.
type ClearChannel struct {
	Name  string
	Field models.ChannelField
}

// MemberInfo reports a member's join date and roles. An empty UserID means
// the invoking member.
type MemberInfo struct {
	UserID string
}

// DeleteMessages, Ban and Mute are registered moderation commands without
// moderation behavior.
type DeleteMessages struct {
	Count int64
}

type Ban struct {
	UserID string
}

type Mute struct {
	UserID   string
	Duration time.Duration
}

func (c SetChannel) CommandName() string   { return c.Name }
func (c ClearChannel) CommandName() string { return c.Name }
func (MemberInfo) CommandName() string     { return NameMemberInfo }
func (DeleteMessages) CommandName() string { return NameMessageDelete }
func (Ban) CommandName() string            { return NameBan }
func (Mute) CommandName() string           { return NameMute }

func (SetChannel) isCommand()     {}
func (ClearChannel) isCommand()   {}
func (MemberInfo) isCommand()     {}
func (DeleteMessages) isCommand() {}
func (Ban) isCommand()            {}
func (Mute) isCommand()           {}

// channelSetting pairs a set/del command with the field it manages.
// models.InfoChannel has no pair: it can only be filled by editing the
// settings file.
type channelSetting struct {
	set   string
	del   string
	field models.ChannelField
}

var channelSettings = []channelSetting{
	{set: NameSetWelcome, del: NameDelWelcome, field: models.WelcomeChannel},
	{set: NameSetLogMessage, del: NameDelLogMessage, field: models.MessageLogChannel},
	{set: NameSetLog, del: NameDelLog, field: models.GeneralLogChannel},
}

// Parse converts the data of an application command interaction into its
// typed form.
func Parse(data discordgo.ApplicationCommandInteractionData) (Command, error) {
	def, ok := Lookup(data.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, data.Name)
	}

	opts := optionMap(data.Options)
	for _, p := range def.Params {
		if _, present := opts[p.Name]; p.Required && !present {
			return nil, fmt.Errorf("%s: %w: %s", data.Name, ErrMissingOption, p.Name)
		}
	}

	for _, cs := range channelSettings {
		switch data.Name {
		case cs.set:
			id, ok := stringOption(opts, optionChannel)
			if !ok {
				return nil, fmt.Errorf("%s: %w: %s", data.Name, ErrMissingOption, optionChannel)
			}
			return SetChannel{
				Name:        data.Name,
				Field:       cs.field,
				ChannelID:   id,
				ChannelName: resolvedChannelName(data.Resolved, id),
			}, nil
		case cs.del:
			return ClearChannel{Name: data.Name, Field: cs.field}, nil
		}
	}

	switch data.Name {
	case NameMemberInfo:
		id, _ := stringOption(opts, optionUser)
		return MemberInfo{UserID: id}, nil
	case NameMessageDelete:
		count, ok := intOption(opts, optionCount)
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", data.Name, ErrMissingOption, optionCount)
		}
		return DeleteMessages{Count: count}, nil
	case NameBan:
		id, ok := stringOption(opts, optionUser)
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", data.Name, ErrMissingOption, optionUser)
		}
		return Ban{UserID: id}, nil
	case NameMute:
		id, ok := stringOption(opts, optionUser)
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", data.Name, ErrMissingOption, optionUser)
		}
		minutes, _ := intOption(opts, optionDuration)
		return Mute{UserID: id, Duration: time.Duration(minutes) * time.Minute}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, data.Name)
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		if opt != nil {
			out[opt.Name] = opt
		}
	}
	return out
}

// stringOption reads snowflake and string options. Discord sends channel
// and user options as their id.
func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	opt, ok := opts[name]
	if !ok {
		return "", false
	}
	s, ok := opt.Value.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

// intOption reads integer options. JSON numbers decode as float64.
func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, bool) {
	opt, ok := opts[name]
	if !ok {
		return 0, false
	}
	switch v := opt.Value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func resolvedChannelName(resolved *discordgo.ApplicationCommandInteractionDataResolved, id string) string {
	if resolved != nil {
		if ch, ok := resolved.Channels[id]; ok && ch != nil && ch.Name != "" {
			return ch.Name
		}
	}
	return id
}
