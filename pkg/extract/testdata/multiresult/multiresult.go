package multiresult

type PairImpl struct{}

func (p *PairImpl) Both() (int, string) { return 0, "" }
