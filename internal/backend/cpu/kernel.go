package cpu

import "github.com/samcharles93/vkautotune/internal/device"

// kernel is one dispatch of a specialized GEMM over the device buffers.
// Workgroup (gx, gy) owns the output tile at rows gy*TM and columns gx*TN.
// Lane (lx, ly) of a workgroup owns every LaneY-th row starting at ly and
// every LaneX-th column starting at lx.
type kernel struct {
	spec             device.Specialization
	groupsX, groupsY int
	push             device.Push
	a, b, c          []float32
}

func (k *kernel) groups() int {
	return k.groupsX * k.groupsY
}

func (k *kernel) group(g int, scratch []float32) {
	gx := g % k.groupsX
	gy := g / k.groupsX

	tm, tn, tk := int(k.spec.TM), int(k.spec.TN), int(k.spec.TK)
	m, n, kk := int(k.push.M), int(k.push.N), int(k.push.K)
	lda, ldb, ldc := int(k.push.LDA), int(k.push.LDB), int(k.push.LDC)

	row0 := gy * tm
	col0 := gx * tn
	if row0 >= m || col0 >= n {
		return
	}
	rowMax := min(row0+tm, m)
	colMax := min(col0+tn, n)

	for i := row0; i < rowMax; i++ {
		clear(k.c[i*ldc+col0 : i*ldc+colMax])
	}

	for k0 := 0; k0 < kk; k0 += tk {
		kMax := min(k0+tk, kk)

		aSrc, aStride, aOff := k.a, lda, row0*lda+k0
		bSrc, bStride, bOff := k.b, ldb, k0*ldb+col0
		if k.spec.SharedMem {
			// Stage the A slab (tm x tk) and the B slab (tk x tn).
			sa := scratch[:tm*tk]
			sb := scratch[tm*tk : tm*tk+tk*tn]
			for i := row0; i < rowMax; i++ {
				copy(sa[(i-row0)*tk:(i-row0)*tk+(kMax-k0)], k.a[i*lda+k0:i*lda+kMax])
			}
			for p := k0; p < kMax; p++ {
				copy(sb[(p-k0)*tn:(p-k0)*tn+(colMax-col0)], k.b[p*ldb+col0:p*ldb+colMax])
			}
			aSrc, aStride, aOff = sa, tk, 0
			bSrc, bStride, bOff = sb, tn, 0
		}

		lanesX, lanesY := int(k.spec.LaneX), int(k.spec.LaneY)
		for ly := 0; ly < lanesY; ly++ {
			for lx := 0; lx < lanesX; lx++ {
				for i := row0 + ly; i < rowMax; i += lanesY {
					aRow := aOff + (i-row0)*aStride
					cRow := i * ldc
					for p := 0; p < kMax-k0; p++ {
						av := aSrc[aRow+p]
						bRow := bOff + p*bStride
						for j := col0 + lx; j < colMax; j += lanesX {
							k.c[cRow+j] += av * bSrc[bRow+j-col0]
						}
					}
				}
			}
		}
	}
}
