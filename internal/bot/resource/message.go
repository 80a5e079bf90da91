package resource

import "github.com/enescakir/emoji"

const (
	CmdStart        = "start"
	CmdHelp         = "help"
	CmdRegister     = "register"
	CmdDeregister   = "deregister"
	CmdMark         = "mark"
	CmdUnmark       = "unmark"
	CmdGetList      = "getlist"
	CmdMarkedGames  = "markedgames"
	CmdStats        = "stats"
	CmdIsRegistered = "isregistered"
	CmdCoinFlip     = "coinflip"
	CmdRandom       = "random"
)

// account text messages
var (
	TextRegisteredMsg        = emoji.PartyPopper.String() + " Hi %s! You have been registered, the games you launch are recorded from now on."
	TextAlreadyRegisteredMsg = "Hi %s, you are already registered!"
	TextDeregisteredMsg      = "Goodbye %s! You have been deregistered and your history is gone."
	TextNotRegisteredMsg     = emoji.CrossMark.String() + " You are not registered. Send /" + CmdRegister + " first."
	TextUserNotRegisteredMsg = "Requested user is not registered"
	TextIsRegisteredMsg      = "The requested user is registered."
	TextIsNotRegisteredMsg   = "The requested user is not registered."
)

// game list text messages
var (
	TextGamesListHeader  = "*%s's Games List*\nThe names of the games you've played are below.\n\n"
	TextMarkedListHeader = "*%s's Marked Games List*\nThe names of the games you've marked are below.\n\n"
	TextNoGamesMsg       = "No games recorded just yet!"
	TextNoMarkedGamesMsg = "No marked games just yet!"
	TextGameNotInListMsg = emoji.CrossMark.String() + " The game is not in your games list. If you just started playing, " +
		"the game is recorded once the launch is seen."
	TextMarkUsageMsg   = "Usage: /%s <game name as shown in your list>"
	TextMarkedMsg      = emoji.Bookmark.String() + " %s is marked, you will be told whenever you launch it."
	TextUnmarkedMsg    = "%s is no longer marked."
	TextMarkedLaunch   = emoji.Loudspeaker.String() + " You have launched the marked game: %s!"
	TextListBullet     = emoji.VideoGame.String() + " "
	TextStatsHeader    = emoji.CardIndex.String() + " *%s's Stats*\n\n"
	TextNoStatsMsg     = "No games recorded yet!"
	TextMostLaunched   = "Most Launched Game"
	TextLeastLaunched  = "Least Launched Game"
	TextLastLaunched   = "Last Launched Game"
	TextFirstPlayed    = "Date First Played: "
	TextLastPlayed     = "Date Last Played: "
	TextTimesLaunched  = "Times Launched: "
	TextDaysLaunched   = "Days Launched: "
	TextStatsUsageMsg  = "Usage: /" + CmdStats + " [user id]"
	TextStatsDateStamp = "2006-01-02 15:04:05"
)

// misc text messages
var (
	TextHeads          = emoji.FourLeafClover.String() + " Heads"
	TextTails          = emoji.FourLeafClover.String() + " Tails"
	TextRandomMsg      = emoji.GameDie.String() + " Random number in range %d-%d\nNumber: %d"
	TextRandomBoundMsg = "Can't pick a random number if the upper bound is lower than the lower bound!"
	TextRandomUsageMsg = "Usage: /" + CmdRandom + " [lower] [upper]"
	TextInvalidCmdMsg  = emoji.CrossMark.String() + " Invalid command was used. Please see the help read out via /" + CmdHelp + "."
	TextCooldownMsg    = emoji.Stopwatch.String() + " Too many invalid commands sent. Activating %s cool down."
	TextWarnMsg        = emoji.BrokenHeart.String() + " Something went wrong, please try again in a few minutes"

	TextHelpMsg = emoji.Robot.String() + " *Games launched bot*\n\n" +
		"The bot records the games you launch: how often, on how many days, and when.\n\n" +
		"*Commands:*\n" +
		"/" + CmdRegister + " - start recording your games\n" +
		"/" + CmdDeregister + " - stop recording and forget your history\n" +
		"/" + CmdGetList + " - the games you have launched\n" +
		"/" + CmdMark + " <game> - get a message whenever you launch the game\n" +
		"/" + CmdUnmark + " <game> - stop the messages for the game\n" +
		"/" + CmdMarkedGames + " - the games you have marked\n" +
		"/" + CmdStats + " [user id] - most, least and last launched game\n" +
		"/" + CmdIsRegistered + " [user id] - registration status\n" +
		"/" + CmdCoinFlip + " - flip a coin\n" +
		"/" + CmdRandom + " [lower] [upper] - a random number, 1-10 by default\n" +
		"/" + CmdHelp + " - this message"
)

const ProjectName = "launched"

var GreetingCLI = emoji.VideoGame.String() + " %s %s\n" +
	"Game-launch statistics from presence events\n\n"
