package bot

const startText = `Welcome to Duplicate Guard Bot!

Add me to a group and give me administrator permissions. I will delete
repeated messages posted by the same sender within a short time window
and warn the sender once.

Use /help for the command reference.`

const helpText = `Moderation:
Duplicate messages (text, photo, video, animation) from the same sender
are deleted automatically. The first repeat triggers a warning.

Admin commands:
/except <user id> — exempt a user from duplicate detection
/delete <message id> — remove a message from the log and the chat

Use @getidsbot to get user ids from messages.`

const fallbackText = `Sorry, I only work in group chats! Add me to a group and give me administrator permissions to use my features`
