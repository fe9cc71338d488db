package bootstrap

var (
	AttemptsTotal    = attemptsTotal
	DisposalFailures = disposalFailures
)
