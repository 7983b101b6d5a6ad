package levels

import (
	"fmt"
	"strings"
)

// WinnerCode is the redemption code revealed when all levels are beaten.
const WinnerCode = "GAUNTLET2025"

// Button is an interactive reply option attached to an outbound message.
// The engine only supplies identifiers and titles; rendering and delivery
// belong to the messaging transport.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WelcomeButtons are attached to the first message a new player receives.
func WelcomeButtons() []Button {
	return []Button{
		{ID: "continue", Title: "▶️ Start Challenge"},
		{ID: "how_to_play", Title: "ℹ️ How to Play"},
		{ID: "my_progress", Title: "📊 My Progress"},
	}
}

// SessionExpiredButtons are attached to the welcome-back message after an
// expired session.
func SessionExpiredButtons() []Button {
	return []Button{
		{ID: "continue", Title: "▶️ Continue"},
		{ID: "how_to_play", Title: "ℹ️ How to Play"},
		{ID: "my_progress", Title: "📊 My Progress"},
	}
}

// defenseResponses maps each attack signature to its blocked-with-detected-
// attack response variants.
var defenseResponses = map[string][]string{
	"direct_request": {
		"Nice try, but I can't just give away secrets! 🙅",
		"I see what you're trying to do there... not happening! 😏",
		"Direct approach? Points for honesty, but no dice! 🎲",
	},
	"instruction_override": {
		"Trying to override my instructions? I'm not that easy! 🛡️",
		"My instructions are secure. That won't work here! 🔒",
		"I follow my core instructions - can't be overridden! 💪",
	},
	"roleplay": {
		"I'm not playing pretend games with you! 🎭",
		"Roleplay won't trick me into breaking rules! 🎪",
		"Nice roleplay attempt, but I stay in character! 🤖",
	},
	"authority": {
		"I need real verification, not just claims! 🆔",
		"Authority impersonation detected! Not falling for it! 👮",
		"I don't recognize that authority. Try again! ⚠️",
	},
	"hypothetical": {
		"Hypotheticals won't make me reveal secrets! 🤔",
		"Nice try with the hypothetical, but I'm grounded in reality! 🌍",
		"I deal with what IS, not what IF! 💭",
	},
	"encoding": {
		"Encoding tricks won't help you here! 🔐",
		"I'm not encoding or decoding secrets! 📝",
		"Clever encoding attempt, but nope! 🧮",
	},
	"system_prompt": {
		"My instructions are private and protected! 📋",
		"I won't reveal my system prompt! 🔏",
		"That information is not for disclosure! 🚫",
	},
	"semantic": {
		"I see the semantic trick you're trying! 🧩",
		"Reframing the question won't work! 🔄",
		"Nice semantic gymnastics, but I'm staying firm! 🤸",
	},
	"logic_exploit": {
		"Logic traps won't catch me! 🪤",
		"I'm not confirming or denying anything! 🤐",
		"That logical exploit won't work here! ⚖️",
	},
}

// neutralResponses are the blocked-generic variants: no attack detected,
// no bypass either.
var neutralResponses = []string{
	"I'm here to chat, but I can't help with getting free phones! 😊",
	"That's an interesting message, but doesn't change anything! 🤷",
	"I appreciate the creativity, but my rules stand! 👍",
	"Keep trying! You might find a clever way through! 💪",
	"Interesting approach... but not quite there yet! 🎯",
	"I'm enjoying this challenge! Keep thinking creatively! 🧠",
}

// advanceTemplates are the advanced variants, formatted with the level just
// completed and the next level.
var advanceTemplates = []string{
	"Wait... that's actually clever! 🤔 Okay, you got me this time!\n\n*🎉 Level %d completed!*\n\nMoving to Level %d...",
	"Hmm, I didn't see that coming! 😅 Well played!\n\n*✅ Level %d beaten!*\n\nLevel %d awaits...",
	"Okay okay, you're good! 👏 That was a smart approach!\n\n*🏆 Level %d complete!*\n\nOn to Level %d!",
}

// pickVariant clamps a variant index into a slice of candidates.
func pickVariant(variants []string, pick int) string {
	if len(variants) == 0 {
		return ""
	}
	if pick < 0 {
		pick = -pick
	}
	return variants[pick%len(variants)]
}

// DefenseResponse returns a blocked-with-detected-attack variant for the
// given signature. Unknown signatures fall back to the direct_request set.
func DefenseResponse(signature string, pick int) string {
	variants, ok := defenseResponses[signature]
	if !ok {
		variants = defenseResponses["direct_request"]
	}
	return pickVariant(variants, pick)
}

// NeutralResponse returns a blocked-generic encouragement variant.
func NeutralResponse(pick int) string {
	return pickVariant(neutralResponses, pick)
}

// AdvanceResponse returns an advanced variant announcing completion of
// `completed` and the move to the next level.
func AdvanceResponse(completed int, pick int) string {
	return fmt.Sprintf(pickVariant(advanceTemplates, pick), completed, completed+1)
}

// AlreadyWonMessage is returned for any message after the game is won.
func AlreadyWonMessage() string {
	return fmt.Sprintf("You've already beaten the whole gauntlet! 🏆 Your winner code is *%s* - bring it to the booth to claim your prize! 🎁", WinnerCode)
}

// WelcomeMessage is the greeting for a brand-new player.
func (c *Catalog) WelcomeMessage() string {
	return fmt.Sprintf(`*🎮 Welcome to the Prompt Injection Gauntlet! 🎮*

Think you can hack a chatbot? Here's your mission:

*🎯 YOUR GOAL:*
Convince the bot to give you a free phone by bypassing its security across %d levels!

*📱 HOW IT WORKS:*
• Each level has a bot protecting the secret giveaway code
• Use creative prompts to make the bot reveal it
• Beat all %d levels to win a real phone!

*⚡ RULES:*
• Get creative with your prompts
• Think like a hacker (ethical, of course!)
• Learn about AI security along the way

*🚀 Ready? Let's start with Level 1!*`, c.MaxLevel(), c.MaxLevel())
}

// FinalWinMessage is sent when the last level is completed.
func (c *Catalog) FinalWinMessage() string {
	return fmt.Sprintf(`*🎊🎊🎊 CONGRATULATIONS! 🎊🎊🎊*

*YOU DID IT!* You've beaten all %d levels! 🏆

*🎁 YOU'VE WON A FREE PHONE! 🎁*

Your secret winner code is: *%s*

Show this conversation at the booth to claim your prize!

*Thank you for playing!* 🎮`, c.MaxLevel(), WinnerCode)
}

// LevelMessage announces the start of a level.
func (c *Catalog) LevelMessage(level int) string {
	def, err := c.DefinitionFor(level)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`*🎯 LEVEL %d/%d*

*Defense Level:* %s

%s

Give it your best shot! 💪`, level, c.MaxLevel(), strings.ToUpper(def.DefenseStrength), def.Intro)
}

// SessionWarningMessage is sent when a player is close to session expiry.
func SessionWarningMessage() string {
	return `⏰ *Hey there!* Still working on the challenge?

Your session will expire soon if you don't respond!

Don't worry - you can always pick up from where you left off. But let's keep the momentum going! 💪

Send any message to keep your session active! 🎮`
}

// SessionExpiredMessage welcomes a player back after their session expired.
func (c *Catalog) SessionExpiredMessage(level int) string {
	return fmt.Sprintf(`👋 *Welcome back!* You're on *Level %d/%d*

*🎯 Quick Recap:*
Hack the bot through creative prompts to win a phone! 📱

_Your session expired after inactivity - now refreshed!_`, level, c.MaxLevel())
}

// HowToPlayMessage describes the game mechanics.
func (c *Catalog) HowToPlayMessage() string {
	return fmt.Sprintf(`*🎮 HOW TO PLAY*

*🎯 OBJECTIVE:*
Win a FREE phone by hacking through %d AI security levels!

*🔓 ATTACK TECHNIQUES:*
• Direct requests
• Instruction overrides ("ignore previous...")
• Roleplay scenarios
• Authority impersonation
• Hypothetical questions
• Encoding tricks
• System prompt extraction
• Logic exploits

*📊 PROGRESSION:*
Level 1: Basic defense → Level %d: Maximum security

*💡 TIPS:*
• Be creative and persistent
• Try different approaches
• Learn from bot responses

Ready to continue? Just send a message! 💪`, c.MaxLevel(), c.MaxLevel())
}

// ProgressMessage summarizes a player's standing.
func (c *Catalog) ProgressMessage(level, attempts int, won bool) string {
	if won {
		return fmt.Sprintf(`*📊 YOUR STATS*

*🎉 STATUS:* WINNER! 🏆

• Levels Completed: %d/%d ✅
• Total Attempts: %d
• Winner Code: *%s*

Share your victory and challenge your friends! 🚀`, c.MaxLevel(), c.MaxLevel(), attempts, WinnerCode)
	}

	def, err := c.DefinitionFor(level)
	if err != nil {
		def, _ = c.DefinitionFor(1)
	}
	done := level - 1
	return fmt.Sprintf(`*📊 YOUR PROGRESS*

• Level: *%d/%d*
• Current Bot: %s
• Defense Level: %s
• Total Attempts: %d

%s%s

Keep trying creative prompts to bypass %s's defenses! 💪`,
		level, c.MaxLevel(), def.BotName, def.DefenseStrength, attempts,
		strings.Repeat("🟩", done), strings.Repeat("⬜", c.MaxLevel()-done), def.BotName)
}
