package content

// defaultBodies are the built-in body templates. The generator fills the
// corpus with these; content synthesis itself happens upstream and is out of
// scope here.
var defaultBodies = []string{
	"Hi,\n\nFollowing up on the quarterly numbers we discussed. The updated figures are attached for review before Friday's sync.\n\nThanks,",
	"Hello,\n\nThe vendor confirmed the revised delivery schedule. Please check the attached summary and flag anything that conflicts with the rollout plan.\n\nBest,",
	"Team,\n\nDraft agenda for next week's planning session is below. Send me additions by end of day tomorrow.\n\n1. Roadmap review\n2. Budget carryover\n3. Open hires\n\nRegards,",
	"Hi all,\n\nThe migration window has been moved to Saturday 02:00 UTC. Runbook and rollback steps are attached. Reply if you need access provisioned.\n\nThanks,",
	"Hello,\n\nSharing the signed-off design notes from today's review. A few action items are called out inline; owners are tagged in the document.\n\nCheers,",
	"Hi,\n\nCould you take a pass over the attached report before it goes out? Mostly looking for a sanity check on the regional breakdown.\n\nThanks in advance,",
	"All,\n\nReminder that expense reports for this cycle are due on the 15th. The finance portal link and the updated policy doc are attached.\n\nBest regards,",
	"Hi,\n\nQuick status update: staging is green, the remaining blockers are tracked in the attached sheet. Aiming to cut the release candidate Thursday.\n\nThanks,",
}

// defaultSubjects are the built-in subject templates for new messages.
var defaultSubjects = []string{
	"Quarterly numbers follow-up",
	"Revised delivery schedule",
	"Planning session agenda",
	"Migration window moved",
	"Design review notes",
	"Regional report sanity check",
	"Expense report reminder",
	"Release candidate status",
}

// defaultExcerpts are short quotable snippets used when replies and forwards
// reference an original message.
var defaultExcerpts = []string{
	"The updated figures are attached for review.",
	"Please flag anything that conflicts with the rollout plan.",
	"Send me additions by end of day tomorrow.",
	"Runbook and rollback steps are attached.",
	"A few action items are called out inline.",
	"Mostly looking for a sanity check on the regional breakdown.",
	"Expense reports for this cycle are due on the 15th.",
	"Aiming to cut the release candidate Thursday.",
}
