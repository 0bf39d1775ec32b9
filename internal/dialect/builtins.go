package dialect

// Builtin tables. Codes are stable across versions: a later dialect only
// appends.

var v1Builtins = []Builtin{
	{Name: "addInteger", Code: 0, Arity: 2},
	{Name: "subtractInteger", Code: 1, Arity: 2},
	{Name: "multiplyInteger", Code: 2, Arity: 2},
	{Name: "divideInteger", Code: 3, Arity: 2},
	{Name: "quotientInteger", Code: 4, Arity: 2},
	{Name: "remainderInteger", Code: 5, Arity: 2},
	{Name: "modInteger", Code: 6, Arity: 2},
	{Name: "equalsInteger", Code: 7, Arity: 2},
	{Name: "lessThanInteger", Code: 8, Arity: 2},
	{Name: "lessThanEqualsInteger", Code: 9, Arity: 2},
	{Name: "appendByteString", Code: 10, Arity: 2},
	{Name: "consByteString", Code: 11, Arity: 2},
	{Name: "sliceByteString", Code: 12, Arity: 3},
	{Name: "lengthOfByteString", Code: 13, Arity: 1},
	{Name: "indexByteString", Code: 14, Arity: 2},
	{Name: "equalsByteString", Code: 15, Arity: 2},
	{Name: "lessThanByteString", Code: 16, Arity: 2},
	{Name: "lessThanEqualsByteString", Code: 17, Arity: 2},
	{Name: "sha2_256", Code: 18, Arity: 1},
	{Name: "sha3_256", Code: 19, Arity: 1},
	{Name: "blake2b_256", Code: 20, Arity: 1},
	{Name: "verifyEd25519Signature", Code: 21, Arity: 3},
	{Name: "appendString", Code: 22, Arity: 2},
	{Name: "equalsString", Code: 23, Arity: 2},
	{Name: "encodeUtf8", Code: 24, Arity: 1},
	{Name: "decodeUtf8", Code: 25, Arity: 1},
	{Name: "ifThenElse", Code: 26, Arity: 3, Forces: 1},
	{Name: "chooseUnit", Code: 27, Arity: 2, Forces: 1},
	{Name: "trace", Code: 28, Arity: 2, Forces: 1},
	{Name: "fstPair", Code: 29, Arity: 1, Forces: 2},
	{Name: "sndPair", Code: 30, Arity: 1, Forces: 2},
	{Name: "chooseList", Code: 31, Arity: 3, Forces: 2},
	{Name: "mkCons", Code: 32, Arity: 2, Forces: 1},
	{Name: "headList", Code: 33, Arity: 1, Forces: 1},
	{Name: "tailList", Code: 34, Arity: 1, Forces: 1},
	{Name: "nullList", Code: 35, Arity: 1, Forces: 1},
	{Name: "chooseData", Code: 36, Arity: 6, Forces: 1},
	{Name: "constrData", Code: 37, Arity: 2},
	{Name: "mapData", Code: 38, Arity: 1},
	{Name: "listData", Code: 39, Arity: 1},
	{Name: "iData", Code: 40, Arity: 1},
	{Name: "bData", Code: 41, Arity: 1},
	{Name: "unConstrData", Code: 42, Arity: 1},
	{Name: "unMapData", Code: 43, Arity: 1},
	{Name: "unListData", Code: 44, Arity: 1},
	{Name: "unIData", Code: 45, Arity: 1},
	{Name: "unBData", Code: 46, Arity: 1},
	{Name: "equalsData", Code: 47, Arity: 2},
	{Name: "mkPairData", Code: 48, Arity: 2},
	{Name: "mkNilData", Code: 49, Arity: 1},
	{Name: "mkNilPairData", Code: 50, Arity: 1},
}

var v2Builtins = []Builtin{
	{Name: "serialiseData", Code: 51, Arity: 1},
	{Name: "verifyEcdsaSecp256k1Signature", Code: 52, Arity: 3},
	{Name: "verifySchnorrSecp256k1Signature", Code: 53, Arity: 3},
}

var v3Builtins = []Builtin{
	{Name: "bls12_381_G1_add", Code: 54, Arity: 2},
	{Name: "bls12_381_G1_neg", Code: 55, Arity: 1},
	{Name: "bls12_381_G1_scalarMul", Code: 56, Arity: 2},
	{Name: "bls12_381_G1_equal", Code: 57, Arity: 2},
	{Name: "bls12_381_G1_compress", Code: 58, Arity: 1},
	{Name: "bls12_381_G1_uncompress", Code: 59, Arity: 1},
	{Name: "bls12_381_G1_hashToGroup", Code: 60, Arity: 2},
	{Name: "bls12_381_G2_add", Code: 61, Arity: 2},
	{Name: "bls12_381_G2_neg", Code: 62, Arity: 1},
	{Name: "bls12_381_G2_scalarMul", Code: 63, Arity: 2},
	{Name: "bls12_381_G2_equal", Code: 64, Arity: 2},
	{Name: "bls12_381_G2_compress", Code: 65, Arity: 1},
	{Name: "bls12_381_G2_uncompress", Code: 66, Arity: 1},
	{Name: "bls12_381_G2_hashToGroup", Code: 67, Arity: 2},
	{Name: "bls12_381_millerLoop", Code: 68, Arity: 2},
	{Name: "bls12_381_mulMlResult", Code: 69, Arity: 2},
	{Name: "bls12_381_finalVerify", Code: 70, Arity: 2},
	{Name: "keccak_256", Code: 71, Arity: 1},
	{Name: "blake2b_224", Code: 72, Arity: 1},
	{Name: "integerToByteString", Code: 73, Arity: 3},
	{Name: "byteStringToInteger", Code: 74, Arity: 2},
}
