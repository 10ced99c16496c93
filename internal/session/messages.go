package session

import "fmt"

const (
	messageIdleFarewell = "Left voice due to lack of frens :((("

	messagePong               = "Pong!"
	messageJoinVoiceFirst     = ":warning: **Join a voice channel first.**"
	messageVoiceLookupFailed  = ":warning: **Could not check your voice channel.**"
	messageJoinFailed         = ":warning: **Could not join your voice channel.**"
	messageNotInVoice         = ":warning: **Not in a voice channel.**"
	messageLeaveFailed        = ":warning: **Could not leave the voice channel.**"
	messageLeft               = ":wave: **Left the voice channel.**"
	messageNothingPlaying     = ":mute: **Nothing is playing.**"
	messageJoinedFormat       = ":microphone2: **Joined** <#%s>"
	nowPlayingTitle           = "🎶 Now Playing"
	nowPlayingUnknownTitle    = "Unknown Title"
	nowPlayingUnknownArtist   = "Unknown Artist"
	nowPlayingUnknownListener = "`unknown`"
	nowPlayingColor           = 0x5865F2
)

func joinedMessage(voiceChannelID string) string {
	return fmt.Sprintf(messageJoinedFormat, voiceChannelID)
}
