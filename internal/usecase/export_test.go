package usecase

// 関連商品の並びを固定する
func (u *CatalogUsecase) SetShuffle(fn func(n int, swap func(i, j int))) {
	u.shuffle = fn
}
